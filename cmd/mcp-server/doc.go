// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// mcp-server serves TLS trust checks to MCP clients over stdio.
//
// The configuration file is named by the TLS_TRUST_CONFIG environment
// variable and uses the same format as tls-trust-check:
//
//	{
//	  "mcpServers": {
//	    "tls-trust": {
//	      "command": "mcp-server",
//	      "env": {"TLS_TRUST_CONFIG": "/etc/tls-trust/config.yaml"}
//	    }
//	  }
//	}
package main
