// Package dataset loads and writes the 4-D tank temperature field.
//
// The field is stored in a NetCDF classic file as a single variable
// indexed by (time, depth, y, x):
//
//   - [Load] and [Open]: read a variable into a [Field]
//   - [Write]: write a [Field] back out as NetCDF
//   - [Synthetic]: build analytic fields for tests and dry runs
//   - [Grid]: a 2-D cross-section of a [Field]
//
// Packed variables are unpacked with the CF scale_factor and add_offset
// attributes, and _FillValue samples become NaN.
//
// # Example
//
//	field, err := dataset.Load("TankDimensionPablo.cdf", "temp")
//	if err != nil {
//	    return err
//	}
//	slice, _ := field.HorizontalSlice(0, 3)
package dataset
