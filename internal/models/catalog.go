package models

// Template is one entry of the template gallery.
type Template struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category" yaml:"category"`
	Thumbnail   string   `json:"thumbnail,omitempty" yaml:"thumbnail"`
	Duration    string   `json:"duration,omitempty" yaml:"duration"`
	Usage       int      `json:"usage,omitempty" yaml:"usage"`
	Rating      float64  `json:"rating,omitempty" yaml:"rating"`
	Tags        []string `json:"tags,omitempty" yaml:"tags"`
}

// Category is a gallery filter option.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Voice is one narration voice offered by the speech provider or the placeholder list.
type Voice struct {
	ID     string            `json:"voice_id" yaml:"voice_id"`
	Name   string            `json:"name" yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels"`
}

// MusicOption is a background track choice.
type MusicOption struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// FlowTemplate is a visual template offered in the create flow.
type FlowTemplate struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
}

// Plan is a subscription tier. MonthlyVideos < 0 means unlimited.
type Plan struct {
	ID                   string   `json:"id" yaml:"id"`
	Name                 string   `json:"name" yaml:"name"`
	Description          string   `json:"description,omitempty" yaml:"description"`
	MonthlyPrice         int      `json:"monthly_price" yaml:"monthly_price"` // cents
	YearlyPrice          int      `json:"yearly_price" yaml:"yearly_price"`
	OriginalMonthlyPrice int      `json:"original_monthly_price,omitempty" yaml:"original_monthly_price"`
	OriginalYearlyPrice  int      `json:"original_yearly_price,omitempty" yaml:"original_yearly_price"`
	MonthlyVideos        int      `json:"monthly_videos" yaml:"monthly_videos"`
	Voices               int      `json:"voices" yaml:"voices"`
	Watermark            bool     `json:"watermark" yaml:"watermark"`
	Popular              bool     `json:"popular,omitempty" yaml:"popular"`
	Features             []string `json:"features" yaml:"features"`
}

// Unlimited reports whether the plan has no monthly video cap.
func (p Plan) Unlimited() bool { return p.MonthlyVideos < 0 }
