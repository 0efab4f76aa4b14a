// Package league reads the test league roster file: a markdown document
// listing team names, account emails and passwords under their own
// second-level headings, in matching order.
package league

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

const (
	sectionTeamNames = "team names"
	sectionEmails    = "emails"
	sectionPasswords = "passwords"

	// DefaultTeamCount is the size of a full league.
	DefaultTeamCount = 8
)

// Account is one team's login.
type Account struct {
	Team     string
	Email    string
	Password string
}

// Roster is the parsed file, before the lists are validated against each
// other.
type Roster struct {
	TeamNames []string
	Emails    []string
	Passwords []string
}

// Parse reads "## Heading" sections and the "- item" lines under them.
// Headings are matched case-insensitively; unknown sections are skipped.
func Parse(r io.Reader) (*Roster, error) {
	roster := &Roster{}
	sections := map[string]*[]string{
		sectionTeamNames: &roster.TeamNames,
		sectionEmails:    &roster.Emails,
		sectionPasswords: &roster.Passwords,
	}

	var current *[]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "## ") {
			current = sections[strings.ToLower(strings.TrimSpace(line[3:]))]
			continue
		}

		if current != nil && strings.HasPrefix(line, "- ") {
			*current = append(*current, strings.TrimSpace(line[2:]))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	return roster, nil
}

func ParseFile(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening roster file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Accounts pairs up the three lists. Each must have exactly expected
// entries; with expected <= 0 they only need to be non-empty and the same
// length.
func (r *Roster) Accounts(expected int) ([]Account, error) {
	n := len(r.TeamNames)
	if expected > 0 {
		if n != expected || len(r.Emails) != expected || len(r.Passwords) != expected {
			return nil, fmt.Errorf("roster must define %d team names, emails, and passwords (got %d, %d, %d)",
				expected, len(r.TeamNames), len(r.Emails), len(r.Passwords))
		}
	} else if n == 0 || len(r.Emails) != n || len(r.Passwords) != n {
		return nil, fmt.Errorf("roster must define the same, non-zero number of team names, emails, and passwords (got %d, %d, %d)",
			len(r.TeamNames), len(r.Emails), len(r.Passwords))
	}

	accounts := make([]Account, n)
	for i := range accounts {
		accounts[i] = Account{
			Team:     r.TeamNames[i],
			Email:    r.Emails[i],
			Password: r.Passwords[i],
		}
	}

	return accounts, nil
}

var unsafeRunes = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SafeName turns a team name into a label usable in logs, metrics and
// window titles.
func SafeName(team string) string {
	return strings.Trim(unsafeRunes.ReplaceAllString(team, "-"), "-")
}
