// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"log/slog"
	"strings"

	"gitlab.com/accumulatenetwork/multifile/pkg/errors"
)

// Rule sets the level for records carrying a matching module attribute. A
// rule with no module sets the default level.
type Rule struct {
	Module string     `json:"module,omitempty"`
	Level  slog.Level `json:"level"`
}

// ParseRules parses a rule list such as "info;multifile=debug". Rules are
// separated by semicolons or commas. An entry without a module, or with the
// module "*", sets the default level.
func ParseRules(s string) ([]Rule, error) {
	var rules []Rule
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var rule Rule
		level := part
		if i := strings.LastIndexByte(part, '='); i >= 0 {
			rule.Module, level = strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:])
		}
		if rule.Module == "*" {
			rule.Module = ""
		}

		err := rule.Level.UnmarshalText([]byte(level))
		if err != nil {
			return nil, errors.BadRequest.WithFormat("invalid log level %q: %w", level, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
