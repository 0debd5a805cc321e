package robots

import (
	"bufio"
	"fmt"
	"strings"
	"time"
)

// group is one user-agent block of a robots.txt file.
type group struct {
	userAgents []string
	allows     []string
	disallows  []string
	crawlDelay *time.Duration
}

func (g group) empty() bool {
	return len(g.allows) == 0 && len(g.disallows) == 0 && g.crawlDelay == nil
}

// parse splits robots.txt content into user-agent groups. Consecutive
// User-agent lines share the rules that follow them; rules before any
// User-agent line form a leading "*" group.
func parse(content string) []group {
	var groups []group
	var current *group
	var global group

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}

		field := strings.ToLower(strings.TrimSpace(line[:colonIdx]))
		value := strings.TrimSpace(line[colonIdx+1:])

		switch field {
		case "user-agent":
			switch {
			case current == nil:
				current = &group{userAgents: []string{value}}
			case current.empty():
				current.userAgents = append(current.userAgents, value)
			default:
				groups = append(groups, *current)
				current = &group{userAgents: []string{value}}
			}

		case "allow":
			if value == "" {
				continue
			}
			if current != nil {
				current.allows = append(current.allows, value)
			} else {
				global.allows = append(global.allows, value)
			}

		case "disallow":
			// An empty Disallow allows everything.
			if value == "" {
				continue
			}
			if current != nil {
				current.disallows = append(current.disallows, value)
			} else {
				global.disallows = append(global.disallows, value)
			}

		case "crawl-delay":
			if current == nil {
				continue
			}
			var seconds float64
			if _, err := fmt.Sscanf(value, "%f", &seconds); err == nil && seconds >= 0 {
				delay := time.Duration(seconds * float64(time.Second))
				current.crawlDelay = &delay
			}
		}
	}

	if current != nil {
		groups = append(groups, *current)
	}
	if !global.empty() {
		global.userAgents = []string{"*"}
		groups = append([]group{global}, groups...)
	}
	return groups
}

// bestGroup finds the most specific group matching userAgent:
// an exact product-token match wins, then the longest token the agent
// starts with, then "*".
func bestGroup(groups []group, userAgent string) *group {
	target := strings.ToLower(userAgent)
	var best *group
	bestLength := 0
	for i := range groups {
		g := &groups[i]
		for _, ua := range g.userAgents {
			uaLower := strings.ToLower(ua)
			if uaLower == target {
				return g
			}
			if ua == "*" {
				if best == nil {
					best = g
				}
				continue
			}
			if uaLower != "" && strings.HasPrefix(target, uaLower) && len(uaLower) > bestLength {
				best = g
				bestLength = len(uaLower)
			}
		}
	}
	return best
}
