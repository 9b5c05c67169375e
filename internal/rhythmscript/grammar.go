// Package rhythmscript is an alternate, declarative textual front end for
// describing a rhythm run, built on the same grammar-school-go engine the
// teacher's drummer and arranger DSL parsers use (drummer_dsl_parser.go,
// arranger_dsl_parser.go). Where internal/cycle compiles Tidal-flavored
// mini-notation into a per-cycle step list, rhythmscript compiles a single
// function-call style descriptor into a Descriptor carrying the rhythm.Spec
// fields — grid notation for the pulse pattern, named parameters for
// everything else.
package rhythmscript

// Grammar returns the Lark grammar for one rhythmscript descriptor:
//
//	rhythm(grid="x--x--x-", unit="beats", value=0.5, offset=0, repeat="true")
//
// Grid notation: 'x' is a hit, '-' is a rest, digits 1-9 request a
// velocity-scaled hit (velocity = digit/9).
func Grammar() string {
	return `
// rhythmscript grammar - single declarative rhythm descriptor
start: rhythm_call

rhythm_call: "rhythm" "(" rhythm_params ")"

rhythm_params: rhythm_param ("," SP rhythm_param)*
rhythm_param: "grid" "=" STRING
            | "unit" "=" STRING
            | "value" "=" NUMBER
            | "offset" "=" NUMBER
            | "repeat" "=" STRING
            | "trigger" "=" STRING
            | "seed" "=" NUMBER

SP: " "+
STRING: /"[^"]*"/
NUMBER: /-?\d+(\.\d+)?/
`
}
