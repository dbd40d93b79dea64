package ad

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Persona struct {
	ID                uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string                      `gorm:"not null;column:name" json:"name"`
	Age               int                         `gorm:"column:age" json:"age"`
	Gender            string                      `gorm:"column:gender" json:"gender"`
	Interests         datatypes.JSONSlice[string] `gorm:"column:interests" json:"interests"`
	PreferredColors   datatypes.JSONSlice[string] `gorm:"column:preferred_colors" json:"preferred_colors"`
	TonePreference    string                      `gorm:"column:tone_preference" json:"tone_preference"`
	PersonalityTraits datatypes.JSONSlice[string] `gorm:"column:personality_traits" json:"personality_traits"`
	FoodPreferences   datatypes.JSONSlice[string] `gorm:"column:food_preferences" json:"food_preferences"`
	Description       string                      `gorm:"column:description" json:"description"`
	CreatedBy         string                      `gorm:"column:created_by;index" json:"created_by,omitempty"`
	CreatedAt         time.Time                   `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (Persona) TableName() string { return "personas" }

func (p *Persona) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Normalize()
	return nil
}

// Normalize replaces nil list fields with empty lists so they serialize as [].
func (p *Persona) Normalize() {
	if p.Interests == nil {
		p.Interests = datatypes.JSONSlice[string]{}
	}
	if p.PreferredColors == nil {
		p.PreferredColors = datatypes.JSONSlice[string]{}
	}
	if p.PersonalityTraits == nil {
		p.PersonalityTraits = datatypes.JSONSlice[string]{}
	}
	if p.FoodPreferences == nil {
		p.FoodPreferences = datatypes.JSONSlice[string]{}
	}
}

// PromptSummary renders the persona attributes for model instructions.
func (p Persona) PromptSummary() string {
	var b strings.Builder
	b.WriteString("Name: " + p.Name + "\n")
	if p.Age > 0 {
		b.WriteString("Age: " + itoa(p.Age) + "\n")
	}
	writeField(&b, "Gender", p.Gender)
	writeList(&b, "Interests", p.Interests)
	writeList(&b, "Preferred colors", p.PreferredColors)
	writeField(&b, "Tone preference", p.TonePreference)
	writeList(&b, "Personality traits", p.PersonalityTraits)
	writeList(&b, "Food preferences", p.FoodPreferences)
	writeField(&b, "Description", p.Description)
	return b.String()
}

func writeField(b *strings.Builder, label, v string) {
	if strings.TrimSpace(v) == "" {
		return
	}
	b.WriteString(label + ": " + v + "\n")
}

func writeList(b *strings.Builder, label string, v []string) {
	if len(v) == 0 {
		return
	}
	b.WriteString(label + ": " + strings.Join(v, ", ") + "\n")
}

// PersonaPatch carries a partial persona update. Nil fields are left unchanged.
type PersonaPatch struct {
	Name              *string   `json:"name" validate:"omitempty,min=1,max=200"`
	Age               *int      `json:"age" validate:"omitempty,gt=0,lte=130"`
	Gender            *string   `json:"gender"`
	Interests         *[]string `json:"interests"`
	PreferredColors   *[]string `json:"preferred_colors"`
	TonePreference    *string   `json:"tone_preference"`
	PersonalityTraits *[]string `json:"personality_traits"`
	FoodPreferences   *[]string `json:"food_preferences"`
	Description       *string   `json:"description"`
}

// Updates returns the column map for a gorm Updates call.
func (pp PersonaPatch) Updates() map[string]interface{} {
	out := map[string]interface{}{}
	if pp.Name != nil {
		out["name"] = strings.TrimSpace(*pp.Name)
	}
	if pp.Age != nil {
		out["age"] = *pp.Age
	}
	if pp.Gender != nil {
		out["gender"] = *pp.Gender
	}
	if pp.Interests != nil {
		out["interests"] = datatypes.JSONSlice[string](nonNil(*pp.Interests))
	}
	if pp.PreferredColors != nil {
		out["preferred_colors"] = datatypes.JSONSlice[string](nonNil(*pp.PreferredColors))
	}
	if pp.TonePreference != nil {
		out["tone_preference"] = *pp.TonePreference
	}
	if pp.PersonalityTraits != nil {
		out["personality_traits"] = datatypes.JSONSlice[string](nonNil(*pp.PersonalityTraits))
	}
	if pp.FoodPreferences != nil {
		out["food_preferences"] = datatypes.JSONSlice[string](nonNil(*pp.FoodPreferences))
	}
	if pp.Description != nil {
		out["description"] = *pp.Description
	}
	return out
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// PersonaSummary is the persona slice embedded in report listings.
type PersonaSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
