// dns parses a URL and looks up the ip address of its host, printing the parsed URL with the address filled in.
// URLs with no hostname print the unspecified address.
//
//	usage:
//	   dns URL
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"gitlab.com/efronlicht/rawget/weburl"
)

func main() {
	log.SetPrefix("dns\t")
	if len(os.Args) != 2 {
		log.Fatal("expected exactly one command-line argument\nusage:\tdns URL")
	}
	u, err := weburl.Parse(os.Args[1])
	if err != nil {
		log.Fatalf("parse %s: %v", os.Args[1], err)
	}
	if _, err := u.Address(context.Background(), nil); err != nil {
		log.Fatalf("error looking up %s: %v", u.Hostname, err)
	}
	fmt.Println(u)
}
