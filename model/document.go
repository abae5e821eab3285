package model

// Document is the authored, serializable form of an arrangement.
type Document struct {
	Name     string       `json:"name,omitempty" yaml:"name,omitempty"`
	Key      string       `json:"key" yaml:"key"`
	Minor    bool         `json:"minor,omitempty" yaml:"minor,omitempty"`
	Meter    string       `json:"meter,omitempty" yaml:"meter,omitempty"`
	Sections []SectionDoc `json:"sections" yaml:"sections"`
	Settings *Snapshot    `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// SectionDoc holds a progression string such as "C | Am | F G | G7:4".
// Bars are split by '|', chords in a bar share its beats unless a ":beats"
// suffix is given.
type SectionDoc struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Label       string `json:"label" yaml:"label"`
	Role        Role   `json:"role,omitempty" yaml:"role,omitempty"`
	Seamless    bool   `json:"seamless,omitempty" yaml:"seamless,omitempty"`
	Key         string `json:"key,omitempty" yaml:"key,omitempty"`
	Progression string `json:"progression" yaml:"progression"`
}
