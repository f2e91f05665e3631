package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"legal-ai/internal/db"
	"legal-ai/internal/helper"
	"legal-ai/internal/models"
)

var (
	askEmail        string
	askConversation int64
)

func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question as a registered user",
		Long: `Ask a question against the indexed documents. The exchange is stored
in the user's conversation history; pass --conversa to continue one.`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}
	cmd.Flags().StringVar(&askEmail, "email", "", "Email of the registered user")
	cmd.Flags().Int64Var(&askConversation, "conversa", 0, "Conversation id to continue")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.store.GetUserByEmail(ctx, askEmail)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("no user registered with email %s", askEmail)
	}
	if err != nil {
		return err
	}
	var conversationID *int64
	if askConversation > 0 {
		conversationID = &askConversation
	}

	ans, err := a.rag.Answer(ctx, user.ID, args[0], conversationID)
	if err != nil {
		return err
	}
	return helper.PrettyPrint(cmd.OutOrStdout(), models.AnswerResponse{
		Answer:         ans.Text,
		Sources:        ans.Sources,
		NumDocs:        len(ans.Sources),
		ConversationID: ans.ConversationID,
	})
}
