// Package commands defines the contactmp CLI.
//
// Commands
//
//   - run        Walk through finding your MP and drafting an email
//   - concerns   List the concern identifiers accepted by the generator
//
// The root command loads the same configuration as the site server, so the
// collaborator URLs and API key come from config/config.yaml, .env or the
// environment unless overridden by flags.
package commands
