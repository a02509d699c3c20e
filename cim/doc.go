// Package cim implements the typed CIM (Common Information Model) data
// model: scalar value types, datetimes, object paths, instances, classes,
// and the qualifier/property/method/parameter shapes defined by DSP0201.
//
// All CIM names (class, property, method, parameter, qualifier) are
// case-insensitive for lookup and equality but preserve original case on
// round-trip; see OrderedMap.
package cim
