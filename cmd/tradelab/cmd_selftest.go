package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"options-trade-lab/internal/app"
)

func (c *cli) selftestCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "selftest",
		Short:       "Check the alias table and key canonicalization",
		Long:        "Run the startup checks and report each of them. Exits non-zero when any check fails.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSelfTest: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			st := app.RunSelfTest(c.app.Resolver)

			t := table{title: "Self-Test", headers: []string{"Check", "OK", "Failures"}}
			for _, ch := range st.Checks {
				t.rows = append(t.rows, []string{ch.Name, fmt.Sprint(ch.OK), strings.Join(ch.Failures, "; ")})
			}
			if err := c.render(st, t.markdown, t.csv); err != nil {
				return err
			}
			return st.Err()
		},
	}
}
