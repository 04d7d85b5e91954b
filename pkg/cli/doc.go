// Package cli provides the userdeck-admin command-line interface for operators.
//
// # Overview
//
// The commands talk directly to the profile store and the identity provider,
// bypassing the HTTP API. They use the same environment configuration as the
// server (see package config).
//
// # Commands
//
// seed-superadmin: Create or repair the superadmin
//
//	userdeck-admin seed-superadmin -f seed.yaml [-password s3cret]
//
// The seed file names the account:
//
//	email: ops@example.com
//	fullName: Ops Admin
//	username: ops
//	password: only-used-when-the-account-is-new
//
// The identity account is created (email verified) when no account has the
// email. The profile is then upserted with role superadmin and active true;
// an existing profile keeps its creation time.
//
// list-users: Print all profiles
//
//	userdeck-admin list-users [-q prefix] [-sort role]
//
// find-duplicates: Report identity accounts sharing an email, and which of
// them owns a profile. Nothing is deleted.
//
//	userdeck-admin find-duplicates
//
// dev-token: Mint a bearer token when the server runs with
// USERDECK_IDENTITY_MODE=hs256
//
//	userdeck-admin dev-token -sub user-123 -email dev@example.com -ttl 2h
package cli
