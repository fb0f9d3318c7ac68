// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log"
	"os"

	coda "github.com/saferwall/coda"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	withAttrs bool
	maxItems  int
)

func dumpValue(cursor *coda.Cursor, typ coda.Type) string {
	switch typ.ReadType() {
	case coda.NativeTypeChar:
		c, err := cursor.ReadChar()
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return fmt.Sprintf("'%c'", c)
	case coda.NativeTypeString:
		s, err := cursor.ReadString()
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return fmt.Sprintf("%q", s)
	case coda.NativeTypeFloat, coda.NativeTypeDouble:
		v, err := cursor.ReadDouble()
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return fmt.Sprintf("%g", v)
	case coda.NativeTypeUint64:
		v, err := cursor.ReadUint64()
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return fmt.Sprintf("%d", v)
	case coda.NativeTypeNotAvailable:
		return "<no data>"
	default:
		v, err := cursor.ReadInt64()
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return fmt.Sprintf("%d", v)
	}
}

func dumpCursor(cursor *coda.Cursor, path string) error {
	typ, err := cursor.GetType()
	if err != nil {
		return err
	}

	switch typ.TypeClass() {
	case coda.RecordClass:
		record := typ.(*coda.RecordType)
		for i := 0; i < record.NumFields(); i++ {
			field := record.Field(i)
			if err := cursor.GotoRecordFieldByIndex(int64(i)); err != nil {
				if verbose {
					fmt.Printf("%s/%s: <%v>\n", path, field.Name, err)
				}
				continue
			}
			if err := dumpCursor(cursor, path+"/"+field.Name); err != nil {
				return err
			}
			if err := cursor.GotoParent(); err != nil {
				return err
			}
		}
	case coda.ArrayClass:
		n, err := cursor.GetNumElements()
		if err != nil {
			return err
		}
		for i := int64(0); i < n; i++ {
			if maxItems > 0 && i >= int64(maxItems) {
				fmt.Printf("%s[%d..%d]: ...\n", path, i, n-1)
				break
			}
			if err := cursor.GotoArrayElementByIndex(i); err != nil {
				return err
			}
			if err := dumpCursor(cursor, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
			if err := cursor.GotoParent(); err != nil {
				return err
			}
		}
	case coda.SpecialClass:
		v, err := cursor.ReadDouble()
		if err != nil {
			fmt.Printf("%s: <%v>\n", path, err)
			return nil
		}
		str, err := coda.TimeDoubleToString(v, "yyyy-MM-dd HH:mm:ss.SSSSSS")
		if err != nil {
			fmt.Printf("%s: %g\n", path, v)
			return nil
		}
		fmt.Printf("%s: %s\n", path, str)
	default:
		fmt.Printf("%s: %s\n", path, dumpValue(cursor, typ))
	}

	if withAttrs {
		if err := cursor.GotoAttributes(); err == nil {
			n, _ := cursor.GetNumElements()
			if n > 0 {
				if err := dumpCursor(cursor, path+"@"); err != nil {
					return err
				}
			}
			if err := cursor.GotoParent(); err != nil {
				return err
			}
		}
	}

	return nil
}

func dumpProduct(filename string) error {
	product, err := coda.Open(filename, nil)
	if err != nil {
		return err
	}
	defer product.Close()

	fmt.Printf("file: %s\n", product.Filename)
	fmt.Printf("format: %s\n", product.Format)
	fmt.Printf("size: %d\n", product.FileSize)

	var cursor coda.Cursor
	if err := cursor.SetProduct(product); err != nil {
		return err
	}
	return dumpCursor(&cursor, "")
}

func findProducts(filter string, paths []string) error {
	_, err := coda.MatchFilefilter(filter, paths,
		func(path string, status coda.FilefilterStatus, message string, userdata interface{}) int {
			switch status {
			case coda.FilefilterMatch:
				fmt.Println(path)
			case coda.FilefilterNoMatch, coda.FilefilterUnsupportedFile:
				// only positively matching files are printed
			default:
				if message != "" {
					fmt.Fprintf(os.Stderr, "ERROR: %s: %s\n", path, message)
				}
			}
			return 0
		}, nil)
	return err
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "codadump",
		Short: "Dump the contents of earth observation product files",
	}

	dumpCmd := &cobra.Command{
		Use:   "dump <file>...",
		Short: "Dump the full data tree of one or more product files",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, filename := range args {
				if err := dumpProduct(filename); err != nil {
					log.Printf("Error while processing file: %s, reason: %s", filename, err)
				}
			}
		},
	}
	dumpCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report unreadable fields")
	dumpCmd.Flags().BoolVarP(&withAttrs, "attributes", "a", false, "include attribute records")
	dumpCmd.Flags().IntVarP(&maxItems, "max-items", "n", 0, "maximum array elements per array (0 = all)")

	findCmd := &cobra.Command{
		Use:   "find [--filter expr] <path>...",
		Short: "Find product files matching a filter expression",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			filter, _ := cmd.Flags().GetString("filter")
			if err := findProducts(filter, args); err != nil {
				log.Fatalf("Error: %s", err)
			}
		},
	}
	findCmd.Flags().String("filter", "", "boolean filter expression")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the library version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(coda.Version)
		},
	}

	rootCmd.AddCommand(dumpCmd, findCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
