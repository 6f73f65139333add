// Package declaration loads workflow declarations from YAML files.
//
// A declaration file names a workflow, its entrypoint and its members. Members
// with a template body become workflow templates; members without one are kept
// as plain values and produce nothing:
//
//	apiVersion: argonaut.io/v1
//	kind: Declaration
//	name: MyPipeline
//	entrypoint: start
//	values:
//	  image: alpine:3.19
//	members:
//	  - name: start
//	    template:
//	      container:
//	        image: ${image}
//	        command: [echo, hi]
//
// # Values
//
// Template bodies may reference ${key} or ${a.b.c} placeholders. They are
// resolved when the template is produced, against the file's values layered
// under any overlays supplied by the caller.
//
// # Libraries
//
// A Library file holds shared members and values. Declarations pull them in
// with imports:
//
//	imports:
//	  - common  # loads <library dir>/common.yml
package declaration
