// Package catalog serves the static option lists of the app: the template gallery, create-flow
// templates and music, pricing plans and the placeholder voices used when no speech key is set.
package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/models"
)

// CategoryAll matches every template.
const CategoryAll = "all"

// MaxVoices caps the voice list offered in the create flow.
const MaxVoices = 10

// TemplateSource loads gallery templates from outside the binary (a database table).
type TemplateSource interface {
	Templates(ctx context.Context) ([]models.Template, error)
}

// Catalog holds the option lists. The zero value is empty; use Default or Load.
type Catalog struct {
	templates     []models.Template
	categories    []models.Category
	flowTemplates []models.FlowTemplate
	music         []models.MusicOption
	plans         []models.Plan
	voices        []models.Voice

	source TemplateSource
	logger *zap.Logger
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		templates:     defaultTemplates(),
		categories:    defaultCategories(),
		flowTemplates: defaultFlowTemplates(),
		music:         defaultMusic(),
		plans:         defaultPlans(),
		voices:        defaultVoices(),
		logger:        zap.NewNop(),
	}
}

// WithSource makes Templates read from src, falling back to the built-in list when src fails or is empty.
func (c *Catalog) WithSource(src TemplateSource, logger *zap.Logger) *Catalog {
	c.source = src
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Templates returns the gallery templates matching category and search.
// An empty category or "all" matches every category; search is matched case-insensitively
// against name, description and tags.
func (c *Catalog) Templates(ctx context.Context, category, search string) []models.Template {
	all := c.templates
	if c.source != nil {
		list, err := c.source.Templates(ctx)
		switch {
		case err != nil:
			c.logger.Warn("template source failed, using built-in list", zap.Error(err))
		case len(list) > 0:
			all = list
		}
	}
	return FilterTemplates(all, category, search)
}

// FilterTemplates applies the gallery filter to list.
func FilterTemplates(list []models.Template, category, search string) []models.Template {
	category = strings.ToLower(strings.TrimSpace(category))
	search = strings.ToLower(search)
	out := make([]models.Template, 0, len(list))
	for _, t := range list {
		if category != "" && category != CategoryAll && strings.ToLower(t.Category) != category {
			continue
		}
		if search != "" && !matches(t, search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(t models.Template, search string) bool {
	if strings.Contains(strings.ToLower(t.Name), search) ||
		strings.Contains(strings.ToLower(t.Description), search) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// Template returns the gallery template with id.
func (c *Catalog) Template(ctx context.Context, id string) (models.Template, bool) {
	for _, t := range c.Templates(ctx, "", "") {
		if t.ID == id {
			return t, true
		}
	}
	return models.Template{}, false
}

// Categories returns the gallery filter options, "all" first.
func (c *Catalog) Categories() []models.Category { return c.categories }

// FlowTemplates returns the visual templates offered in the create flow.
func (c *Catalog) FlowTemplates() []models.FlowTemplate { return c.flowTemplates }

// Music returns the background track choices.
func (c *Catalog) Music() []models.MusicOption { return c.music }

// Plans returns the pricing tiers.
func (c *Catalog) Plans() []models.Plan { return c.plans }

// Plan returns the tier with id (FREE, STARTER, PRO).
func (c *Catalog) Plan(id string) (models.Plan, bool) {
	for _, p := range c.plans {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return models.Plan{}, false
}

// PlaceholderVoices returns the voices offered when the speech provider is not configured.
func (c *Catalog) PlaceholderVoices() []models.Voice { return LimitVoices(c.voices) }

// LimitVoices returns at most MaxVoices voices, keeping provider order.
func LimitVoices(v []models.Voice) []models.Voice {
	if len(v) > MaxVoices {
		return v[:MaxVoices]
	}
	return v
}

func thumbnail(name string) string {
	return "https://via.placeholder.com/300x200/1f2937/ffffff?text=" + strings.ReplaceAll(name, " ", "+")
}

func defaultTemplates() []models.Template {
	t := func(id, name, desc, category, duration string, usage int, rating float64, tags ...string) models.Template {
		return models.Template{
			ID: id, Name: name, Description: desc, Category: category,
			Thumbnail: thumbnail(name), Duration: duration, Usage: usage, Rating: rating, Tags: tags,
		}
	}
	return []models.Template{
		t("motivation-1", "Daily Motivation", "Perfect for daily motivational content and positive affirmations",
			"motivation", "30-60s", 1250, 4.8, "motivation", "daily", "positive"),
		t("education-1", "Educational Explainer", "Great for explaining complex topics in simple terms",
			"education", "60-90s", 890, 4.6, "education", "explainer", "learning"),
		t("business-1", "Business Tips", "Professional template for business advice and tips",
			"business", "45-75s", 650, 4.7, "business", "professional", "tips"),
		t("entertainment-1", "Fun Facts", "Engaging template for sharing interesting facts and trivia",
			"entertainment", "30-45s", 1100, 4.9, "entertainment", "fun", "facts"),
		t("fitness-1", "Workout Motivation", "Energetic template for fitness and workout content",
			"fitness", "45-60s", 750, 4.5, "fitness", "workout", "energy"),
		t("finance-1", "Financial Tips", "Professional template for financial advice and money tips",
			"finance", "60-90s", 520, 4.4, "finance", "money", "tips"),
		t("lifestyle-1", "Life Hacks", "Creative template for sharing life hacks and tips",
			"lifestyle", "30-60s", 980, 4.6, "lifestyle", "hacks", "tips"),
		t("motivation-2", "Success Stories", "Inspirational template for success stories and achievements",
			"motivation", "60-120s", 420, 4.7, "motivation", "success", "inspiration"),
	}
}

func defaultCategories() []models.Category {
	return []models.Category{
		{ID: CategoryAll, Name: "All Templates"},
		{ID: "motivation", Name: "Motivation"},
		{ID: "education", Name: "Education"},
		{ID: "business", Name: "Business"},
		{ID: "entertainment", Name: "Entertainment"},
		{ID: "fitness", Name: "Fitness"},
		{ID: "finance", Name: "Finance"},
		{ID: "lifestyle", Name: "Lifestyle"},
	}
}

func defaultFlowTemplates() []models.FlowTemplate {
	return []models.FlowTemplate{
		{ID: "motivation", Name: "Motivation", Description: "Perfect for motivational content", Category: "Lifestyle"},
		{ID: "education", Name: "Education", Description: "Great for educational videos", Category: "Education"},
		{ID: "business", Name: "Business", Description: "Professional business content", Category: "Business"},
		{ID: "entertainment", Name: "Entertainment", Description: "Fun and engaging content", Category: "Entertainment"},
		{ID: "fitness", Name: "Fitness", Description: "Health and fitness content", Category: "Health"},
		{ID: "finance", Name: "Finance", Description: "Financial advice and tips", Category: "Finance"},
	}
}

func defaultMusic() []models.MusicOption {
	return []models.MusicOption{
		{ID: "upbeat", Name: "Upbeat", Description: "Energetic and positive"},
		{ID: "calm", Name: "Calm", Description: "Relaxing and peaceful"},
		{ID: "dramatic", Name: "Dramatic", Description: "Intense and powerful"},
		{ID: "fun", Name: "Fun", Description: "Playful and cheerful"},
		{ID: "none", Name: "No Music", Description: "Voice only"},
	}
}

// Prices are in cents.
func defaultPlans() []models.Plan {
	return []models.Plan{
		{
			ID: "FREE", Name: "Free", Description: "Perfect for getting started",
			MonthlyVideos: 3, Voices: 2, Watermark: true,
			Features: []string{
				"3 videos per month", "2 AI voices", "Basic templates",
				"Watermark on videos", "720p quality", "Email support",
			},
		},
		{
			ID: "STARTER", Name: "Starter", Description: "Great for content creators",
			MonthlyPrice: 499, YearlyPrice: 4990, OriginalMonthlyPrice: 599, OriginalYearlyPrice: 5990,
			MonthlyVideos: 30, Voices: 5, Popular: true,
			Features: []string{
				"30 videos per month", "5 premium AI voices", "All templates", "No watermark",
				"HD quality (1080p)", "Priority support", "Custom branding", "Video analytics",
			},
		},
		{
			ID: "PRO", Name: "Pro", Description: "For serious creators and businesses",
			MonthlyPrice: 999, YearlyPrice: 9990, OriginalMonthlyPrice: 1199, OriginalYearlyPrice: 11990,
			MonthlyVideos: -1, Voices: 10,
			Features: []string{
				"Unlimited videos", "10 premium AI voices", "All templates + custom", "No watermark",
				"4K quality", "Priority support", "Custom branding", "Advanced analytics",
				"Batch generation", "YouTube auto-upload", "API access", "White-label option",
			},
		},
	}
}

func defaultVoices() []models.Voice {
	v := func(id, name, gender, accent string) models.Voice {
		return models.Voice{ID: id, Name: name, Labels: map[string]string{"gender": gender, "accent": accent, "language": "en"}}
	}
	return []models.Voice{
		v("demo-rachel", "Rachel", "female", "american"),
		v("demo-adam", "Adam", "male", "american"),
		v("demo-bella", "Bella", "female", "american"),
		v("demo-josh", "Josh", "male", "american"),
		v("demo-emily", "Emily", "female", "british"),
		v("demo-george", "George", "male", "british"),
	}
}
