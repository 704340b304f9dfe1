package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sales_targets/internal/iiko"
	"sales_targets/internal/targets"
)

const digestSystemPrompt = `You summarize restaurant sales target progress for a shift manager.
Answer in at most five short sentences. Name employees who reached both targets,
who reached only the first one, and who is furthest behind. Use only the numbers given.`

// Digest asks the model for a short narrative over target progress.
func (c *Client) Digest(ctx context.Context, rng iiko.DateRange, progress []targets.Progress) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	if len(progress) == 0 {
		return "", errors.New("no assigned targets to summarize")
	}

	resp, err := c.Chat(ctx, digestSystemPrompt, DigestPrompt(rng, progress))
	if err != nil {
		return "", fmt.Errorf("llm digest: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content.Text), nil
}

// DigestPrompt renders progress as one line per assigned slot.
func DigestPrompt(rng iiko.DateRange, progress []targets.Progress) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s\n", rng.String())
	b.WriteString("branch | position | employee | category | sold | target1 | target2\n")
	for _, p := range progress {
		employee := p.EmployeeSurname
		if employee == "" {
			employee = "-"
		}
		fmt.Fprintf(&b, "%s | %d | %s | %s | %g | %g | %g\n",
			p.BranchID, p.Position+1, employee, p.Category, p.Actual, p.Target1, p.Target2)
	}
	return b.String()
}
