// Command sdsctl runs the bulk operations of the catalogue from a shell,
// against the same database and object storage as the API.
package main

func main() {
	Execute()
}
