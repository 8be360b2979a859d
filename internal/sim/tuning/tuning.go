package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	DefaultRoom       string  `yaml:"default_room"`
	StartingInfluence float64 `yaml:"starting_influence"`

	SessionTimeoutMinutes int `yaml:"session_timeout_minutes"`
	SweepEveryMinutes     int `yaml:"sweep_every_minutes"`

	MessageRetention int `yaml:"message_retention"`
	RecentMessages   int `yaml:"recent_messages"`
	WallFragments    int `yaml:"wall_fragments"`

	FragmentBaseValue float64   `yaml:"fragment_base_value"`
	Valuation         Valuation `yaml:"valuation"`

	Limits Limits `yaml:"limits"`
}

// Valuation holds the weight constants of the fragment pricing formula.
type Valuation struct {
	PurchaseWeight float64 `yaml:"purchase_weight"`
	RatingWeight   float64 `yaml:"rating_weight"`
	DecayPerDay    float64 `yaml:"decay_per_day"`
}

type Limits struct {
	MaxSayLen     int `yaml:"max_say_len"`
	MaxContentLen int `yaml:"max_content_len"`
	MaxTopics     int `yaml:"max_topics"`
	MaxTopicLen   int `yaml:"max_topic_len"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:       "1.0",
		DefaultRoom:           "tavern",
		StartingInfluence:     10,
		SessionTimeoutMinutes: 60,
		SweepEveryMinutes:     5,
		MessageRetention:      200,
		RecentMessages:        50,
		WallFragments:         20,
		FragmentBaseValue:     1,
		Valuation: Valuation{
			PurchaseWeight: 0.5,
			RatingWeight:   2.0,
			DecayPerDay:    0.01,
		},
		Limits: Limits{
			MaxSayLen:     1024,
			MaxContentLen: 4096,
			MaxTopics:     8,
			MaxTopicLen:   32,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.DefaultRoom == "" {
		return fmt.Errorf("default_room is required")
	}
	if t.StartingInfluence < 0 {
		return fmt.Errorf("starting_influence must be >= 0")
	}
	if t.SessionTimeoutMinutes <= 0 {
		return fmt.Errorf("session_timeout_minutes must be > 0")
	}
	if t.SweepEveryMinutes <= 0 {
		return fmt.Errorf("sweep_every_minutes must be > 0")
	}
	if t.MessageRetention <= 0 || t.RecentMessages <= 0 || t.WallFragments <= 0 {
		return fmt.Errorf("retention limits must be > 0")
	}
	if t.FragmentBaseValue < 0 {
		return fmt.Errorf("fragment_base_value must be >= 0")
	}
	if t.Valuation.DecayPerDay < 0 {
		return fmt.Errorf("valuation.decay_per_day must be >= 0")
	}
	if t.Limits.MaxSayLen <= 0 || t.Limits.MaxContentLen <= 0 || t.Limits.MaxTopics <= 0 || t.Limits.MaxTopicLen <= 0 {
		return fmt.Errorf("limits must be > 0")
	}
	return nil
}
