// Package config provides configuration parsing for Meridian projects.
//
// The configuration is stored in meridian.toml or meridian.json at the
// project root. This package handles loading, saving, and validating
// configuration, and converting it to a meridian.Config.
//
// # Configuration File Structure
//
//	site = "https://example.com"
//	output = "server"
//	manifest = "routes.msgpack"
//	trailingSlash = "ignore"
//	strictParams = true
//
//	[server]
//	host = "0.0.0.0"
//	port = 8080
//
//	[export]
//	dir = "dist"
//	bucket = "my-site"
//	prefix = "prod/"
//	region = "eu-west-1"
//
//	[assets]
//	public = "public"
//	manifest = "assets.json"
//	prefix = "/"
//
//	[adapter]
//	binaryMediaTypes = ["application/x-protobuf"]
//
// The same keys are accepted in meridian.json.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	appCfg, err := cfg.ToAppConfig(slog.Default())
package config
