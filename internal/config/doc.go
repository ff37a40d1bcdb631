// Package config loads, validates and watches the status service
// configuration.
//
// Configuration is a YAML document:
//
//	apiVersion: avastatus.io/v1
//	kind: StatusProxy
//	metadata:
//	  name: spine-directory-status
//	spec:
//	  listener:
//	    address: ":8080"
//	  release:
//	    version: ${RELEASE_VERSION}
//	    releaseId: "13860"
//	    commitId: ${SOURCE_COMMIT_ID:-unknown}
//	  revision: "12"
//	  healthcheck:
//	    url: https://backend.internal/healthcheck
//	    timeout: 5s
//	  statusAuth:
//	    apiKeys: ["${STATUS_API_KEY}"]
//
// ${VAR} and ${VAR:-default} are replaced from the environment before
// parsing; "$$" yields a literal dollar sign.
package config
