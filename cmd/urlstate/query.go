package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/urlstate/internal/errors"
	"github.com/vango-dev/urlstate/pkg/commitqueue"
	"github.com/vango-dev/urlstate/pkg/querycodec"
)

func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <query>",
		Short: "Print the keys and values of a query string in order",
		Long: `Decode a query string the way bindings read it.

Keys are listed in the order they first appear. A repeated key prints
once per value; bindings read the first one.

Examples:
  urlstate decode '?q=red%20shoes&page=2'
  urlstate decode 'tag=a&tag=b'`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			values := querycodec.Decode(args[0])
			for _, key := range values.Keys() {
				for _, v := range values.All(key) {
					fmt.Fprintf(out, "%s\t%s\n", key, v)
				}
			}
		},
	}
}

func mergeCmd() *cobra.Command {
	var deletes []string

	cmd := &cobra.Command{
		Use:   "merge <query> [key=value...]",
		Short: "Merge writes into a query string like one commit",
		Long: `Apply queued writes to a query string and print the committed result.

Assignments are applied in order, then each --delete removes a key. Keys
that already exist keep their position; new keys are appended.

Examples:
  urlstate merge 'val=cat&type=3' val=ferret
  urlstate merge '?q=shoes&page=4' q=boots -d page`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := parseAssignments(args[1:], deletes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), commitqueue.Overlay(args[0], entries))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&deletes, "delete", "d", nil, "Key to remove (repeatable)")
	return cmd
}

// parseAssignments turns key=value arguments and deleted keys into queue
// entries. A key assigned twice keeps its first position and last value.
func parseAssignments(assignments, deletes []string) ([]commitqueue.Entry, error) {
	q := commitqueue.NewQueue()
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			return nil, errors.New("E300").
				WithDetail(fmt.Sprintf("%q is not a key=value assignment", a)).
				WithSuggestion("Write assignments as key=value, e.g. page=2")
		}
		q.Put(key, commitqueue.Set(value))
	}
	for _, key := range deletes {
		q.Put(key, commitqueue.Null())
	}
	return q.Snapshot(), nil
}
