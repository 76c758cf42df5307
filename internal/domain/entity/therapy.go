package entity

import "time"

// Therapy is an entry of the fixed therapy catalog. It is not persisted.
type Therapy struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration"`
	Category        string `json:"category"`
}

// Duration returns the nominal length of the therapy.
func (t Therapy) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

var therapyCatalog = []Therapy{
	{ID: "vamana", Name: "Vamana (Therapeutic Vomiting)", Description: "Eliminates excess Kapha dosha through controlled vomiting", DurationMinutes: 120, Category: "Panchakarma"},
	{ID: "virechana", Name: "Virechana (Purgation)", Description: "Eliminates excess Pitta dosha through controlled purgation", DurationMinutes: 90, Category: "Panchakarma"},
	{ID: "basti", Name: "Basti (Medicated Enema)", Description: "Eliminates excess Vata dosha through medicated enemas", DurationMinutes: 60, Category: "Panchakarma"},
	{ID: "nasya", Name: "Nasya (Nasal Treatment)", Description: "Administration of medicines through nasal passages", DurationMinutes: 45, Category: "Panchakarma"},
	{ID: "raktamokshana", Name: "Raktamokshana (Blood Purification)", Description: "Purification of blood through various methods", DurationMinutes: 75, Category: "Panchakarma"},
	{ID: "abhyanga", Name: "Abhyanga (Full Body Massage)", Description: "Therapeutic full body oil massage", DurationMinutes: 60, Category: "Therapy"},
	{ID: "shirodhara", Name: "Shirodhara (Oil Pouring)", Description: "Continuous pouring of warm oil on forehead", DurationMinutes: 45, Category: "Therapy"},
	{ID: "swedana", Name: "Swedana (Steam Therapy)", Description: "Herbal steam therapy for detoxification", DurationMinutes: 30, Category: "Therapy"},
	{ID: "consultation", Name: "Ayurvedic Consultation", Description: "Initial consultation and diagnosis", DurationMinutes: 30, Category: "Consultation"},
	{ID: "follow-up", Name: "Follow-up Consultation", Description: "Follow-up consultation and treatment review", DurationMinutes: 20, Category: "Consultation"},
}

// TherapyCatalog returns a copy of the catalog in display order.
func TherapyCatalog() []Therapy {
	out := make([]Therapy, len(therapyCatalog))
	copy(out, therapyCatalog)
	return out
}

// FindTherapy looks up a therapy by id.
func FindTherapy(id string) (Therapy, bool) {
	for _, t := range therapyCatalog {
		if t.ID == id {
			return t, true
		}
	}
	return Therapy{}, false
}

// TherapyName returns the display name for id, or id itself when unknown.
func TherapyName(id string) string {
	if t, ok := FindTherapy(id); ok {
		return t.Name
	}
	return id
}
