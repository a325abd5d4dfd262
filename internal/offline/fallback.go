package offline

import (
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/seed"
)

// SeedSubjectID is the one subject whose questions ship with the client.
const SeedSubjectID uint = 1

// FallbackSet is the data served when both the network and the local cache come
// up empty. Subjects without an entry in Questions resolve to an empty list.
type FallbackSet struct {
	Subjects  []models.Subject
	Questions map[uint][]models.PublicQuestion
}

// NewFallbackSet bundles the dataset's subject list and the questions of the
// listed subjects.
func NewFallbackSet(ds *seed.Dataset, subjectIDs ...uint) FallbackSet {
	set := FallbackSet{
		Subjects:  ds.BundledSubjects(),
		Questions: make(map[uint][]models.PublicQuestion, len(subjectIDs)),
	}
	for _, id := range subjectIDs {
		if questions := ds.BundledQuestions(id); questions != nil {
			set.Questions[id] = questions
		}
	}
	return set
}

// DefaultFallback loads the embedded dataset with only the seed subject's
// questions bundled.
func DefaultFallback() (FallbackSet, error) {
	ds, err := seed.Load()
	if err != nil {
		return FallbackSet{}, err
	}
	return NewFallbackSet(ds, SeedSubjectID), nil
}

func (f FallbackSet) subjects() []models.Subject {
	out := make([]models.Subject, len(f.Subjects))
	copy(out, f.Subjects)
	return out
}

func (f FallbackSet) questions(subjectID uint) []models.PublicQuestion {
	bundled := f.Questions[subjectID]
	out := make([]models.PublicQuestion, len(bundled))
	copy(out, bundled)
	return out
}
