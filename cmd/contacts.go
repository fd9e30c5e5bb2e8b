package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/config"
	"github.com/kapilthakare-cyberpunk/telegram-voice-assistant/internal/contacts"
)

func contactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the contact directory",
	}

	cmd.AddCommand(contactsListCmd())
	cmd.AddCommand(contactsAddCmd())
	cmd.AddCommand(contactsRemoveCmd())

	return cmd
}

func openDirectory() (*contacts.Directory, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return contacts.Open(contacts.NewFileStore(cfg.ContactsPath()))
}

func contactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDirectory()
			if err != nil {
				return err
			}

			list := dir.List()
			if len(list) == 0 {
				fmt.Println("No contacts. Add one with: tgva contacts add <name> <handle>")
				return nil
			}

			printContactsTable(list)
			return nil
		},
	}
}

// printContactsTable renders an aligned table. Cell widths use display
// width, not byte length, so names in non-Latin scripts line up.
func printContactsTable(list []contacts.Info) {
	headers := []string{"ID", "NAME", "HANDLE", "ROLE", "ALIASES"}
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		rows = append(rows, []string{c.ID, c.Name, c.Handle, c.Role, strings.Join(c.Aliases, ", ")})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Println("  " + strings.Join(parts, "  "))
	}

	printRow(headers)
	for _, row := range rows {
		printRow(row)
	}
}

func contactsAddCmd() *cobra.Command {
	var (
		role    string
		aliases []string
		notes   string
	)

	cmd := &cobra.Command{
		Use:   "add <name> <handle>",
		Short: "Add a contact (handle: @username or numeric chat id)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDirectory()
			if err != nil {
				return err
			}

			id, err := dir.Create(args[0], args[1], role, aliases, notes)
			if err != nil {
				return err
			}
			fmt.Printf("Added contact %q (id: %s)\n", args[0], id)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "contact role (e.g. boss, friend)")
	cmd.Flags().StringSliceVar(&aliases, "alias", nil, "extra names that resolve to this contact (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")

	return cmd
}

func contactsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a contact by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDirectory()
			if err != nil {
				return err
			}

			if err := dir.Delete(args[0]); err != nil {
				fmt.Fprintf(os.Stderr, "remove %s: %v\n", args[0], err)
				os.Exit(1)
			}
			fmt.Printf("Removed contact %s\n", args[0])
			return nil
		},
	}
}
