// Package harness runs conformance vectors against the dynamic codec.
//
// # Suite Format
//
// A suite is a YAML file naming a registry and a list of vectors:
//
//	name: shapes
//	description: "Enum and map layouts"
//	registry: ../registries/sample.yaml
//	vectors:
//	  - name: circle
//	    type: Shape
//	    value: {Circle: 7}
//	    canonical: "00 07000000"
//	    noncanonical: "00000000 07000000"
//	  - name: unsorted-map
//	    type: Index
//	    reject:
//	      - encoding: canonical
//	        hex: "02 016202 016101"
//	        error: MapNotSorted
//
// Values use the JSON mapping of package value. Hex strings may contain
// spaces. The registry path is relative to the suite file and is read
// with package loader, so any registry document kind works.
//
// # Checks
//
// For each encoding listed on a vector the harness runs three checks:
//
//   - encode: the value serializes to exactly the expected bytes
//   - decode: the bytes deserialize to the value (or to decoded, when the
//     canonical form reorders map entries)
//   - json: the decoded value survives a JSON round trip
//
// Each reject entry runs a reject check: deserializing the bytes must
// fail with the named error kind.
//
// Results carry logical sequence numbers from testutil.Clock so that
// reports are identical across runs and can be compared to golden files.
package harness
