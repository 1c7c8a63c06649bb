package domain

// ObjectType is the astronomical class of a catalogue object.
type ObjectType string

const (
	TypeNebula           ObjectType = "Nebula"
	TypeGlobularCluster  ObjectType = "GlobularCluster"
	TypeOpenCluster      ObjectType = "OpenCluster"
	TypeGalaxy           ObjectType = "Galaxy"
	TypePlanetaryNebula  ObjectType = "PlanetaryNebula"
	TypeSupernovaRemnant ObjectType = "SupernovaRemnant"
)

// ObjectTypes lists every known object type.
var ObjectTypes = []ObjectType{
	TypeNebula, TypeGlobularCluster, TypeOpenCluster,
	TypeGalaxy, TypePlanetaryNebula, TypeSupernovaRemnant,
}

// Valid reports whether t is one of ObjectTypes.
func (t ObjectType) Valid() bool {
	for _, k := range ObjectTypes {
		if t == k {
			return true
		}
	}
	return false
}

// CatalogueEntry is a reference object (a Messier object, in the built-in
// catalogue). Entries are defined at build time and never change.
type CatalogueEntry struct {
	ID          int        `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Type        ObjectType `json:"type" yaml:"type"`
	Description string     `json:"description" yaml:"description"`
	Note        string     `json:"note" yaml:"note"`
}
