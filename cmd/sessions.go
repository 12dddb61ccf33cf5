package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edalab/edachat/internal/chat"
	"github.com/edalab/edachat/internal/render"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, show or delete saved chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		infos, err := chat.ListSessions(c.SessionsDir)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No saved sessions")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%s  %-20s  %-24s  %3d turns  %s\n",
				info.ID[:8], info.Name, info.Model, info.Turns,
				info.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render a session's transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		s, err := chat.FindSession(c.SessionsDir, args[0])
		if err != nil {
			return err
		}
		r := render.NewStdout()
		for _, turn := range s.Transcript().Turns {
			fmt.Printf("[%s]\n", turn.Role)
			r.Turn(turn)
			r.Rule()
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		s, err := chat.FindSession(c.SessionsDir, args[0])
		if err != nil {
			return err
		}
		if err := s.Delete(); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s\n", s.ID)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
