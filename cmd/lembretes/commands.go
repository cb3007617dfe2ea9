package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"lembretes/internal/reminder"
	"lembretes/internal/service"
	"lembretes/internal/session"
)

var (
	listAll    bool
	listSort   string
	rmYes      bool
	clearYes   bool
	exportPath string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminders",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var addCmd = &cobra.Command{
	Use:   "add TEXT",
	Short: "Add a reminder",
	Args:  cobra.MinimumNArgs(1),
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		r, err := a.sess.Add(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), r.ID)
		return nil
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit ID TEXT",
	Short: "Change the text of a reminder",
	Args:  cobra.MinimumNArgs(2),
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		_, err := a.sess.Edit(ctx, args[0], strings.Join(args[1:], " "))
		return err
	}),
}

var doneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Toggle the completion of a reminder",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		r, err := a.sess.Toggle(ctx, args[0])
		if err != nil {
			return err
		}
		state := "pendente"
		if r.Completed {
			state = "concluído"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.Text, state)
		return nil
	}),
}

var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a reminder",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		r, ok := a.sess.Get(args[0])
		if !ok {
			return fmt.Errorf("Lembrete não encontrado: %w", service.ErrNotFound)
		}
		if !rmYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
			fmt.Sprintf("Tem certeza que deseja excluir %q?", r.Text)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelado")
			return nil
		}
		return a.sess.Remove(ctx, args[0])
	}),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every reminder",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to delete all reminders without --yes")
		}
		return a.sess.Clear(ctx)
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a backup of all reminders",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		data, err := a.sess.Export(ctx)
		if err != nil {
			return err
		}
		if exportPath == "-" {
			_, err := cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		path := exportPath
		if path == "" {
			path = service.ExportFilename(time.Now())
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dados exportados para %s\n", path)
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all reminders with the contents of a backup",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		res, err := a.sess.Import(ctx, data)
		if err != nil {
			return importFailure(res, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	}),
}

// importFailure prefixes err with the user-facing message unless the message
// already is the error text.
func importFailure(res service.ImportResult, err error) error {
	if res.Message == "" || res.Message == err.Error() {
		return err
	}
	return fmt.Errorf("%s: %w", res.Message, err)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show which storage backend is in use",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a.sess.Info(ctx))
	}),
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", true, "Include completed reminders")
	listCmd.Flags().StringVar(&listSort, "sort", string(reminder.SortRecent), "Sort order: recent or status")
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Delete without asking")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deleting every reminder")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output file; - writes to stdout")
}

type appFunc func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error

func withApp(fn appFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())
		return fn(ctx, cmd, a, args)
	}
}

// withSession loads the list before running a mutation and prints the
// resulting notice.
func withSession(fn appFunc) func(*cobra.Command, []string) error {
	return withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		if err := a.sess.Load(ctx); err != nil {
			return fmt.Errorf("Erro ao carregar lembretes: %w", err)
		}
		err := fn(ctx, cmd, a, args)
		n, ok := a.sess.Notice()
		switch {
		case err != nil && ok && n.Kind == session.NoticeError:
			return fmt.Errorf("%s: %w", n.Message, err)
		case err != nil:
			return err
		case ok && n.Kind == session.NoticeSuccess:
			fmt.Fprintln(cmd.OutOrStdout(), n.Message)
		}
		return nil
	})
}

func runList(cmd *cobra.Command, args []string) error {
	sort, err := reminder.ParseSortOrder(listSort)
	if err != nil {
		return err
	}
	opts := reminder.ViewOptions{ShowCompleted: listAll, Sort: sort}

	return withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		if err := a.sess.Load(ctx); err != nil {
			return fmt.Errorf("Erro ao carregar lembretes: %w", err)
		}
		printList(cmd.OutOrStdout(), a.sess.List(opts), a.sess.Stats())
		return nil
	})(cmd, args)
}

func printList(w io.Writer, items []*reminder.Reminder, stats reminder.Stats) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nenhum lembrete encontrado")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, r := range items {
			mark := "[ ]"
			if r.Completed {
				mark = "[x]"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, r.ID, r.Text, reminder.FormatDate(r.CreatedAt))
		}
		_ = tw.Flush()
	}
	fmt.Fprintf(w, "\n%d lembretes, %d concluídos (%d%%)\n", stats.Total, stats.Completed, stats.Percent)
}

// confirm asks a yes/no question on in and defaults to no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [s/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}
