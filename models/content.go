package models

// ContentIdea is one generated newsletter/social/email topic.
type ContentIdea struct {
	Title          string   `json:"title"`
	ContentType    string   `json:"content_type"` // newsletter, social, email
	Hook           string   `json:"hook"`
	KeyPoints      []string `json:"key_points"`
	TargetAudience string   `json:"target_audience"`
	CallToAction   string   `json:"call_to_action"`
	SourcePhrase   string   `json:"source_phrase,omitempty"` // mined pain point it came from
}

// SequenceEmail is one step of the subscriber email sequence.
type SequenceEmail struct {
	Day     int    `json:"day"`
	Subject string `json:"subject"`
	Purpose string `json:"purpose"`
	Preview string `json:"preview"`
}

// ContentPlan is the prose-artifact bundle produced from one scored niche.
type ContentPlan struct {
	Niche       NicheKey        `json:"niche"`
	Tagline     string          `json:"tagline"`
	Ideas       []ContentIdea   `json:"ideas"`
	Emails      []SequenceEmail `json:"email_sequence"`
	SocialPosts []string        `json:"social_posts"`
}
