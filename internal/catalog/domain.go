package catalog

import "time"

// Movement is a globally shared exercise definition (squat, snatch, row).
// The movement catalog is public reference data managed by platform admins.
type Movement struct {
	ID          int64
	Name        string
	Description string
	Modality    Modality
	MuscleIDs   []int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Modality groups movements by training style.
type Modality string

const (
	ModalityGymnastics     Modality = "gymnastics"
	ModalityWeightlifting  Modality = "weightlifting"
	ModalityMonostructural Modality = "monostructural"
)

// Muscle is an anatomical reference entry movements link to.
type Muscle struct {
	ID       int64
	Name     string
	BodyPart string
}
