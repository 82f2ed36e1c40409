package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"jobboard_back_end_go/config"
	"jobboard_back_end_go/logger"
	"jobboard_back_end_go/realtime"
	"jobboard_back_end_go/services"

	"github.com/spf13/cobra"
)

var conversationsUser string

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Print a user's conversations from the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configName)
		if err != nil {
			return err
		}
		l := logger.Nop()
		ctx := context.Background()

		st, closeStores, err := provideStores(ctx, cfg, l)
		if err != nil {
			return err
		}
		defer closeStores()

		chat := services.NewChatService(st.messages, st.profiles, realtime.NewLocalBroker(), l)
		conversations, err := chat.ListConversations(ctx, conversationsUser)
		if err != nil {
			return err
		}
		if len(conversations) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no conversations")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COUNTERPART\tUNREAD\tLAST AT\tLAST MESSAGE")
		for _, c := range conversations {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.CounterpartName, c.UnreadCount, c.LastMessageAt.Format("2006-01-02 15:04"), c.LastMessage)
		}
		return w.Flush()
	},
}

func init() {
	conversationsCmd.Flags().StringVarP(&conversationsUser, "user", "u", "", "profile id of the user")
	_ = conversationsCmd.MarkFlagRequired("user")
}
