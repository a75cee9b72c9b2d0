package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect stored knowledge records",
	}
	cmd.AddCommand(newRecordsListCmd(), newRecordsShowCmd())
	return cmd
}

func newRecordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all records",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := setupStoreOnly()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.List()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no records")
				return nil
			}
			for _, rec := range records {
				fmt.Println(styleTask.Render(fmt.Sprintf("%s  %-30s %-20s %s",
					rec.ID, rec.Title, rec.Filename, rec.UpdatedAt.Format("2006-01-02 15:04"))))
			}
			return nil
		},
	}
}

func newRecordsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one record's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := setupStoreOnly()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.GetByID(args[0])
			if err != nil {
				return err
			}
			fmt.Println(styleHeading.Render(rec.Title))
			fmt.Printf("file: %s  type: %s  tags: %v\n\n", rec.Filename, rec.FileType, rec.Tags)
			fmt.Println(rec.Content)
			return nil
		},
	}
}
