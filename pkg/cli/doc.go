// Package cli implements the soapd command line.
//
//	soapd serve     start the server hosting the demo Calculator service
//	soapd validate  check a configuration file
//	soapd version   print build information
package cli
