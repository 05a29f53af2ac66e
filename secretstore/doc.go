/*
Package secretstore defines the narrow secret-lookup contract the credential
pool consumes (Store) and ships the one implementation the core needs:
EnvStore, which reads literal environment variables.

Indexed variants (DEEPSEEK_API_KEY, DEEPSEEK_API_KEY_2, DEEPSEEK_API_KEY_3,
...) are discovered with DiscoverIndexedNames, which stops at the first
unset index rather than requiring a fixed pool size.
*/
package secretstore
