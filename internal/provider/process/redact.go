package process

import (
	"fmt"
	"strings"
)

// SanitizeForLogging produces the command slice that's safe to write to a
// log line, per the exact test matrix in
// original_source/tests/test_secret_redaction.py:
//
//   - an empty command returns empty;
//   - log_full_command bypasses all redaction, including redact_args;
//   - by default, every argument after the command name collapses into a
//     single "<N args>" placeholder;
//   - redact_args (zero-based indices into the full command, including
//     index 0) replaces just those positions with "[REDACTED]";
//   - redact_patterns replaces any argument containing one of the given
//     substrings (case-sensitive) with "[REDACTED]", additively with
//     redact_args.
func SanitizeForLogging(cmd []string, cfg *Process) []string {
	if len(cmd) == 0 {
		return []string{}
	}
	if cfg.logFullCommand {
		return append([]string{}, cmd...)
	}

	if len(cfg.redactArgs) == 0 && len(cfg.redactPatterns) == 0 {
		n := len(cmd) - 1
		return []string{cmd[0], fmt.Sprintf("<%d args>", n)}
	}

	out := append([]string{}, cmd...)
	for idx := range cfg.redactArgs {
		if idx >= 0 && idx < len(out) {
			out[idx] = "[REDACTED]"
		}
	}
	for i, arg := range out {
		if arg == "[REDACTED]" {
			continue
		}
		for _, pattern := range cfg.redactPatterns {
			if strings.Contains(arg, pattern) {
				out[i] = "[REDACTED]"
				break
			}
		}
	}
	return out
}
