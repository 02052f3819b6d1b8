package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosuda/kairos/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		learner string
		secret  string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a learner token for /ws/session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return errors.New("no signing secret: set KAIROS_JWT_SECRET or --secret")
			}
			token, err := auth.IssueLearnerToken(secret, learner, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&learner, "learner", "", "learner identifier (token subject)")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("KAIROS_JWT_SECRET"), "HS256 signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("learner")

	return cmd
}
