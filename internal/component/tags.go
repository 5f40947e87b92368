package component

// Frozen excludes an entity from movement and scripting without disabling it.
type Frozen struct {
	Reason string `yaml:"reason" json:"reason"`
}

func (*Frozen) Name() string { return "frozen" }
