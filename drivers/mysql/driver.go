package mysql

import "github.com/bowtie-db/bowtie/schema"

// Driver composes the MySQL Generator and Introspector into a single
// schema.Driver.
type Driver struct {
	*Introspector
	*Generator
}

// NewDriver creates a new MySQL driver.
func NewDriver() *Driver {
	return &Driver{
		Introspector: NewIntrospector(),
		Generator:    NewGenerator(),
	}
}

// Provider disambiguates the embedded Introspector.Provider and
// Generator.Provider, which would otherwise collide.
func (d *Driver) Provider() schema.Dialect { return schema.MySql }

var _ schema.Driver = (*Driver)(nil)
