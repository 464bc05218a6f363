// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// help_topics.go - Long-form help for individual commands.
//
// Command: help [topic]
//
// Topics are markdown. Terminals get them rendered; pipes get the source.

package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

var helpTopics = map[string]string{
	"login": `# rkids login

Sign in from the command line. The session is stored and picked up by
the check-in terminal on its next start.

## Steps

1. Enter the account email and password.
2. If the service asks for a one-time code, enter it. The demo service
   prints the code so nobody has to check their phone.
3. New accounts created from an invitation set a password first with
   ` + "`--invitation TOKEN`" + `.

## Flags

| Flag | Meaning |
|------|---------|
| ` + "`--email EMAIL`" + ` | Account email, prompted when omitted |
| ` + "`--password-stdin`" + ` | Read the password from stdin |
| ` + "`--code CODE`" + ` | One-time verification code |
| ` + "`--invitation TOKEN`" + ` | Set a first password |

## Example

    echo "$PASSWORD" | rkids login --email teacher@rkids.church --password-stdin
`,

	"status": `# rkids status

Show who is signed in, which dashboard they land on, and the session
policy in effect. Alias: ` + "`whoami`" + `.

With ` + "`--verify`" + ` the stored credential is checked against the service.
A credential the service no longer accepts is cleared, just as the
terminal would on its next request.

Exit code 6 means nobody is signed in.
`,

	"config": `# rkids config

Settings live in ` + "`~/.rkids/config.toml`" + `. Environment variables with the
` + "`RKIDS_`" + ` prefix override the file for one run and are never written back.

| Subcommand | Meaning |
|------------|---------|
| ` + "`show`" + ` | Print every value, secrets redacted |
| ` + "`path`" + ` | Print the file location |
| ` + "`init [--force]`" + ` | Write the defaults |
| ` + "`get KEY`" + ` | Print one value |
| ` + "`set KEY VALUE`" + ` | Change one value |
| ` + "`keys`" + ` | List settable keys |

Durations accept Go syntax such as ` + "`90s`" + ` or ` + "`20m`" + `.
`,

	"demo-server": `# rkids demo-server

Run a local authentication service with one seeded account per role.
Alias: ` + "`demo`" + `.

- ` + "`--addr HOST:PORT`" + ` changes the listen address.
- ` + "`--mfa off`" + ` skips the one-time code step.

Point the terminal at it with ` + "`rkids --api http://HOST:PORT/api`" + `.
`,

	"sessions": `# Sessions

- Every key press and mouse movement counts as activity.
- After the idle timeout (15 minutes by default) the session ends and
  the terminal returns to the sign-in screen.
- A warning appears before that (1 minute by default). Any activity
  dismisses it.
- Signing out always clears the local session, even when the service
  cannot be reached.

Each role lands on its own dashboard:

| Role | Dashboard |
|------|-----------|
| Admin, Super admin | /admin |
| Teacher | /teacher |
| Parent | /parent |
| Teen | /teen |

Accounts with an incomplete profile are sent to the profile screen
first. Test mode adds a role switcher and must never be enabled in
production.
`,
}

var topicAliases = map[string]string{
	"signin":  "login",
	"whoami":  "status",
	"demo":    "demo-server",
	"session": "sessions",
}

var (
	markdownRenderer *glamour.TermRenderer
	markdownOnce     sync.Once
)

// renderer returns a shared markdown renderer, or nil when one cannot
// be built.
func renderer() *glamour.TermRenderer {
	markdownOnce.Do(func() {
		width := GetTerminalWidth()
		if width > 100 {
			width = 100
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	return markdownRenderer
}

// HelpTopics returns the topic names in sorted order.
func HelpTopics() []string {
	names := make([]string, 0, len(helpTopics))
	for name := range helpTopics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// printHelpTopic writes one topic to w, rendered when styled is true.
func printHelpTopic(w io.Writer, topic string, styled bool) error {
	if alias, ok := topicAliases[topic]; ok {
		topic = alias
	}
	doc, ok := helpTopics[topic]
	if !ok {
		fmt.Fprintf(w, "No help for %q. Topics: %s\n", topic, strings.Join(HelpTopics(), ", "))
		return &UsageError{Command: "help " + topic}
	}

	if styled {
		if r := renderer(); r != nil {
			if out, err := r.Render(doc); err == nil {
				_, err = io.WriteString(w, out)
				return err
			}
		}
	}
	_, err := io.WriteString(w, doc)
	return err
}
