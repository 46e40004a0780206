package main

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/acs-cli/internal/config"
	"github.com/sells-group/acs-cli/pkg/acs"
)

// newClient builds an ACS client from the acs config section.
func newClient(c config.ACSConfig) (*acs.Client, error) {
	var opts []acs.Option
	if c.Dataset != "" {
		opts = append(opts, acs.WithDataset(c.Dataset))
	}
	if c.BaseURL != "" {
		opts = append(opts, acs.WithBaseURL(c.BaseURL))
	}
	if c.APIKey != "" {
		opts = append(opts, acs.WithAPIKey(c.APIKey))
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, acs.WithTimeout(c.Timeout()))
	}
	if len(c.Variables) > 0 {
		opts = append(opts, acs.WithVariables(c.Variables...))
	}

	client, err := acs.NewClient(c.Year, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "create acs client")
	}
	return client, nil
}

// parseState normalizes a --state value and rejects anything that is not a
// 2-digit FIPS code.
func parseState(raw string) (string, error) {
	state := acs.NormalizeStateFIPS(raw)
	if state == "" {
		return "", eris.New("--state is required")
	}
	if !acs.ValidStateFIPS(state) {
		return "", eris.Errorf("invalid state FIPS code %q", raw)
	}
	return state, nil
}

// parseContainments parses repeated --in key:value flags.
func parseContainments(raw []string) ([]acs.Containment, error) {
	out := make([]acs.Containment, 0, len(raw))
	for _, s := range raw {
		c, ok := acs.ParseContainment(s)
		if !ok {
			return nil, eris.Errorf("invalid --in %q, want key:value", s)
		}
		out = append(out, c)
	}
	return out, nil
}

// splitIDs flattens positional ids, accepting comma-separated lists.
func splitIDs(args []string) []string {
	var ids []string
	for _, a := range args {
		for _, id := range strings.Split(a, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
