// Package config loads and validates soapd server configuration.
//
// A configuration file is YAML (.yaml, .yml) or JSON. ${VAR} and
// ${VAR:-default} references are expanded from the environment before
// parsing. The document is checked against an embedded JSON schema, decoded
// over Default, and then checked semantically (message versions, paths,
// rule expressions).
//
//	version: "1"
//	server:
//	  listen: ":8080"
//	  readTimeout: 10s
//	log:
//	  level: debug
//	endpoint:
//	  path: /calculator
//	  versions: [soap11, soap12-wsa10]
//	  binders: [trimStrings, requiredArguments]
//	  rules:
//	    - name: no-divide
//	      action: "**/Divide"
//	      when: XPath("b") == "0"
//	      effect: fault
//	      fault: {code: Client, message: division by zero, statusCode: 400}
//
// Load a file with LoadFromFile, or let Discover find soapd.yaml in the
// working directory:
//
//	path, err := config.Discover()
//	cfg, err := config.LoadFromFile(path)
package config
