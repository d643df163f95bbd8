package services

import (
	"fmt"
	"strings"

	"niche-finder/models"
	"niche-finder/utils"
)

// ContentGenerator turns one scored niche into newsletter, email and
// social artifacts. Pure templating over an immutable report; it never
// mutates its input.
type ContentGenerator struct {
	logger *utils.Logger
}

// NewContentGenerator creates a ContentGenerator with the given logger.
func NewContentGenerator(logger *utils.Logger) *ContentGenerator {
	return &ContentGenerator{logger: logger}
}

type emailTemplate struct {
	day     int
	subject string
	purpose string
	preview string
}

var emailSequence = []emailTemplate{
	{0, "Welcome! Here's your guide to finding the best %[1]s in %[2]s",
		"welcome",
		"Thanks for joining! Here's your free guide to finding the best %[1]s in %[2]s..."},
	{2, "The #1 mistake people make when hiring %[1]s...",
		"problem awareness",
		"Most people don't realize this until it's too late. When it comes to %[1]s..."},
	{4, "Real story: how one %[2]s resident saved $500 on %[1]s",
		"social proof",
		"A %[2]s homeowner was about to make a costly mistake. Then they found our checklist..."},
	{7, "Ready to get quotes? Here's our vetted list",
		"conversion",
		"Ready to get started? Here are %[2]s's highest-rated %[1]s providers..."},
}

// Plan generates the full content bundle for a scored niche.
func (g *ContentGenerator) Plan(n *models.NicheResult) *models.ContentPlan {
	niche := n.Niche.Category
	city := cityOf(n.Niche.Location)

	g.logger.Info("[content] Generating plan for %s", n.Niche)

	plan := &models.ContentPlan{
		Niche:   n.Niche,
		Tagline: g.tagline(n),
	}
	plan.Ideas = g.ideas(n)

	for _, t := range emailSequence {
		plan.Emails = append(plan.Emails, models.SequenceEmail{
			Day:     t.day,
			Subject: fmt.Sprintf(t.subject, niche, city),
			Purpose: t.purpose,
			Preview: fmt.Sprintf(t.preview, niche, city),
		})
	}

	plan.SocialPosts = g.socialPosts(n)
	return plan
}

func (g *ContentGenerator) tagline(n *models.NicheResult) string {
	niche := titleCase(n.Niche.Category)
	city := cityOf(n.Niche.Location)

	if len(n.PainPoints) > 0 {
		top := n.PainPoints[0].Phrase
		switch {
		case containsAny(top, "price", "expensive", "overcharge", "cost"):
			return fmt.Sprintf("Save Money on %s in %s", niche, city)
		case containsAny(top, "show", "late", "slow", "wait", "respon"):
			return fmt.Sprintf("Find Reliable %s in %s", niche, city)
		}
	}
	return fmt.Sprintf("The %s %s Insider", city, niche)
}

func (g *ContentGenerator) ideas(n *models.NicheResult) []models.ContentIdea {
	niche := n.Niche.Category
	city := cityOf(n.Niche.Location)
	var ideas []models.ContentIdea

	if len(n.PainPoints) > 0 {
		top := n.PainPoints[0]
		ideas = append(ideas, models.ContentIdea{
			Title:       fmt.Sprintf("Why %s %s Customers Are Frustrated (And How to Avoid It)", city, titleCase(niche)),
			ContentType: "newsletter",
			Hook: fmt.Sprintf("We analyzed local reviews. The #1 complaint? %q - mentioned in %d of them.",
				top.Phrase, top.Support),
			KeyPoints: []string{
				"What customers are really saying",
				"Red flags to watch for",
				"Questions to ask before hiring",
				"How to verify quality",
			},
			TargetAudience: fmt.Sprintf("%s homeowners looking for %s", city, niche),
			CallToAction:   "Get our free vetting checklist",
			SourcePhrase:   top.Phrase,
		})
	}

	ideas = append(ideas, models.ContentIdea{
		Title:       fmt.Sprintf("Before Hiring %s in %s, Read This First", titleCase(niche), city),
		ContentType: "newsletter",
		Hook:        fmt.Sprintf("The complete buyer's guide to %s in %s.", niche, city),
		KeyPoints: []string{
			"What to ask",
			"Red flags",
			"Price ranges",
			"Hiring checklist",
		},
		TargetAudience: fmt.Sprintf("first-time %s buyers in %s", niche, city),
		CallToAction:   "Subscribe for weekly local provider reviews",
	})

	return ideas
}

func (g *ContentGenerator) socialPosts(n *models.NicheResult) []string {
	niche := n.Niche.Category
	city := cityOf(n.Niche.Location)
	totalReviews := 0
	for _, b := range n.Businesses {
		totalReviews += b.ReviewCount
	}

	posts := []string{
		fmt.Sprintf("We analyzed %d+ reviews of %s %s companies. Here's what customers are actually saying (thread)...",
			totalReviews, city, niche),
	}

	if len(n.PainPoints) > 0 && len(n.PainPoints[0].Quotes) > 0 {
		posts = append(posts, fmt.Sprintf("Real review from a %s %s customer:\n\n%q\n\nDon't let this happen to you.",
			city, niche, n.PainPoints[0].Quotes[0]))
	}

	posts = append(posts, fmt.Sprintf(
		"Hiring %s in %s?\n\nAsk these 3 questions BEFORE you sign:\n1. What's included in the quote?\n2. What's your timeline?\n3. Can I see recent work photos?",
		niche, city))

	return posts
}

// Markdown renders a plan as the flat-file artifact handed to writers.
func (g *ContentGenerator) Markdown(plan *models.ContentPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Content Plan: %s\n\n", plan.Niche)
	fmt.Fprintf(&b, "**Tagline:** %s\n\n", plan.Tagline)

	b.WriteString("## Newsletter Ideas\n\n")
	for i, idea := range plan.Ideas {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, idea.Title)
		fmt.Fprintf(&b, "- Hook: %s\n", idea.Hook)
		fmt.Fprintf(&b, "- Audience: %s\n", idea.TargetAudience)
		fmt.Fprintf(&b, "- CTA: %s\n", idea.CallToAction)
		for _, p := range idea.KeyPoints {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Email Sequence\n\n")
	for _, e := range plan.Emails {
		fmt.Fprintf(&b, "- Day %d (%s): %s\n  %s\n", e.Day, e.Purpose, e.Subject, e.Preview)
	}

	b.WriteString("\n## Social Posts\n\n")
	for i, p := range plan.SocialPosts {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, strings.ReplaceAll(p, "\n", " "))
	}

	return b.String()
}

func cityOf(location string) string {
	if i := strings.IndexByte(location, ','); i >= 0 {
		return strings.TrimSpace(location[:i])
	}
	return location
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func containsAny(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
