// README: Common identifier and coordinate types used across modules.
package types

type ID string

type Point struct {
	Lat float64
	Lng float64
}
