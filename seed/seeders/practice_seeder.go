// seeders/practice_seeder.go
package seeders

import (
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/Jhector1/learnoir-api/model"
	"github.com/Jhector1/learnoir-api/shared"
)

// PracticeSeeder handles seeding practice sections and their instances
type PracticeSeeder struct {
	db *gorm.DB
}

// NewPracticeSeeder creates a new practice seeder
func NewPracticeSeeder(db *gorm.DB) *PracticeSeeder {
	return &PracticeSeeder{db: db}
}

// SeedAll seeds sections first, then the instances that reference them
func (s *PracticeSeeder) SeedAll() error {
	if err := s.SeedSections(); err != nil {
		log.Printf("Section seeding failed: %v", err)
		return err
	}
	if err := s.SeedInstances(); err != nil {
		log.Printf("Instance seeding failed: %v", err)
		return err
	}
	return nil
}

// SeedSections seeds the practice sections
func (s *PracticeSeeder) SeedSections() error {
	sections := s.getSections()

	for _, section := range sections {
		var existing model.PracticeSection
		if err := s.db.Where("id = ?", section.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&section).Error; err != nil {
					log.Printf("Error creating section %s: %v", section.Title, err)
					return err
				}
				log.Printf("Created section: %s", section.Title)
			} else {
				log.Printf("Error checking section %s: %v", section.Title, err)
				return err
			}
		} else {
			log.Printf("Section %s already exists, skipping", section.Title)
		}
	}

	log.Println("Section seeding completed successfully")
	return nil
}

// SeedInstances seeds practice instances covering every answer kind
func (s *PracticeSeeder) SeedInstances() error {
	instances := s.getInstances()

	for _, instance := range instances {
		var existing model.PracticeInstance
		if err := s.db.Where("id = ?", instance.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&instance).Error; err != nil {
					log.Printf("Error creating instance %s: %v", instance.Title, err)
					return err
				}
				log.Printf("Created instance: %s", instance.Title)
			} else {
				log.Printf("Error checking instance %s: %v", instance.Title, err)
				return err
			}
		} else {
			log.Printf("Instance %s already exists, skipping", instance.Title)
		}
	}

	log.Println("Instance seeding completed successfully")
	return nil
}

func (s *PracticeSeeder) getSections() []model.PracticeSection {
	now := time.Now()

	return []model.PracticeSection{
		{
			ID:          "section_fractions",
			Slug:        "fractions",
			Title:       "Fractions",
			Description: "Adding, simplifying, and comparing fractions",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "section_vocabulary",
			Slug:        "vocabulary",
			Title:       "Vocabulary",
			Description: "Core vocabulary recall drills",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "section_geography",
			Slug:        "geography",
			Title:       "World Geography",
			Description: "Capitals, continents, and landmarks",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func (s *PracticeSeeder) getInstances() []model.PracticeInstance {
	now := time.Now()

	return []model.PracticeInstance{
		{
			ID:         "inst_fractions_half_plus_quarter",
			SectionID:  "section_fractions",
			Difficulty: shared.DifficultyEasy,
			Title:      "Add simple fractions",
			Prompt:     "What is 1/2 + 1/4, as a decimal?",
			AnswerKey:  mustKey(model.AnswerKey{Kind: shared.AnswerKindNumeric, Value: 0.75, Tolerance: 0.001}),
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         "inst_fractions_third_of_ninety",
			SectionID:  "section_fractions",
			Difficulty: shared.DifficultyMedium,
			Title:      "Fraction of a quantity",
			Prompt:     "What is one third of 90?",
			AnswerKey:  mustKey(model.AnswerKey{Kind: shared.AnswerKindNumeric, Value: 30, Tolerance: 0}),
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         "inst_fractions_compare",
			SectionID:  "section_fractions",
			Difficulty: shared.DifficultyHard,
			Title:      "Compare fractions",
			Prompt:     "Which of these fractions are greater than 1/2?",
			Options:    mustJSON([]string{"3/8", "5/8", "2/3", "4/9"}),
			AnswerKey:  mustKey(model.AnswerKey{Kind: shared.AnswerKindMultiSelect, Choices: []string{"5/8", "2/3"}}),
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         "inst_vocab_ephemeral",
			SectionID:  "section_vocabulary",
			Difficulty: shared.DifficultyMedium,
			Title:      "Define ephemeral",
			Prompt:     "Give a one-word synonym for 'ephemeral'.",
			AnswerKey:  mustKey(model.AnswerKey{Kind: shared.AnswerKindExact, Text: "fleeting"}),
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         "inst_vocab_antonym_scarce",
			SectionID:  "section_vocabulary",
			Difficulty: shared.DifficultyEasy,
			Title:      "Antonym of scarce",
			Prompt:     "What is the antonym of 'scarce'?",
			AnswerKey:  mustKey(model.AnswerKey{Kind: shared.AnswerKindExact, Text: "plentiful"}),
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         "inst_geo_capital_japan",
			SectionID:  "section_geography",
			Difficulty: shared.DifficultyEasy,
			Title:      "Capital of Japan",
			Prompt:     "What is the capital of Japan?",
			AnswerKey:  mustKey(model.AnswerKey{Kind: shared.AnswerKindExact, Text: "Tokyo"}),
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         "inst_geo_southern_hemisphere",
			SectionID:  "section_geography",
			Difficulty: shared.DifficultyMedium,
			Title:      "Southern hemisphere continents",
			Prompt:     "Select every continent that lies mostly in the southern hemisphere.",
			Options:    mustJSON([]string{"Africa", "Australia", "Antarctica", "Europe", "South America"}),
			AnswerKey:  mustKey(model.AnswerKey{Kind: shared.AnswerKindMultiSelect, Choices: []string{"Australia", "Antarctica", "South America"}}),
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         "inst_geo_equator_circumference",
			SectionID:  "section_geography",
			Difficulty: shared.DifficultyHard,
			Title:      "Equator circumference",
			Prompt:     "Roughly how long is the equator, in kilometers?",
			AnswerKey:  mustKey(model.AnswerKey{Kind: shared.AnswerKindNumeric, Value: 40075, Tolerance: 100}),
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

func mustKey(key model.AnswerKey) json.RawMessage {
	data, err := json.Marshal(key)
	if err != nil {
		panic(err)
	}
	return data
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
