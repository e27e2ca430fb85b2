// Package compiler turns CUE correlation context definitions into
// rule.Config values.
//
// Contexts are declared under a top-level "context" struct, keyed by name:
//
//	context: "ssh-burst": {
//		uuid:     "6d2cba0c-3b1c-4f6e-9a7e-2f1c2d3e4f50"
//		kind:     "linear"
//		patterns: ["ssh.fail", "ssh.ok"]
//		conditions: {
//			timeout:       "5m"
//			renew_timeout: "30s"
//			first_opens:   true
//			last_closes:   true
//			max_size:      50
//		}
//		actions: [{
//			message: {
//				name: "ssh.bruteforce"
//				values: {attempts: "${context.len}"}
//			}
//		}]
//	}
//
// CompileContext reports structural problems (missing fields, wrong types)
// as *CompileError with a CUE source position. Validate reports semantic
// problems across a whole rule set as ValidationError values with E1xx codes.
package compiler
