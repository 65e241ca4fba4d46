// Package display renders qsup output for terminals and machines.
package display

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/qsup/errors"
)

// ShouldOutputJSON determines if a command should output JSON based on its
// own --json flag or the root's persistent one
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}

	// Check if --json flag was explicitly set on the command
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	// Check global --json flag
	if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
		return true
	}
	return false
}

// OutputJSON marshals v with MarshalJSON and writes it to w
func OutputJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
