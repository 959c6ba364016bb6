package main

import (
    "fmt"
    "io"
    "os"
    "strings"

    "github.com/peterh/liner"

    "github.com/tinyrange/cinterp/internal/ast"
    "github.com/tinyrange/cinterp/internal/interp"
    "github.com/tinyrange/cinterp/internal/parser"
    "github.com/tinyrange/cinterp/internal/sema"
)

func main() {
    var trace bool
    var prefix, index string
    // Minimal arg parsing supporting -trace anywhere
    args := os.Args[1:]
    for i := 0; i < len(args); i++ {
        a := args[i]
        if a == "-trace" {
            trace = true
            continue
        }
        if len(a) > 0 && a[0] == '-' {
            fmt.Fprintf(os.Stderr, "unknown flag %s\n", a)
            usage()
            os.Exit(2)
        }
        if prefix == "" {
            prefix = a
        } else if index == "" {
            index = a
        }
    }
    if prefix == "" {
        usage()
        os.Exit(2)
    }
    if index == "" {
        idx, err := promptIndex()
        if err != nil {
            fmt.Fprintf(os.Stderr, "read index: %v\n", err)
            os.Exit(1)
        }
        index = idx
    }

    path := prefix + index + ".c"
    data, err := os.ReadFile(path)
    if err != nil {
        fmt.Fprintf(os.Stderr, "read error: %v\n", err)
        os.Exit(1)
    }

    file, perr := parser.ParseFile(path, string(data))
    if perr != nil {
        fmt.Fprintf(os.Stderr, "parse error: %v\n", perr)
        os.Exit(1)
    }
    if err := sema.Check(file); err != nil {
        fmt.Fprintf(os.Stderr, "check error: %v\n", err)
        os.Exit(1)
    }

    var tw io.Writer
    if trace {
        tw = os.Stderr
        ast.Dump(os.Stderr, file)
    }
    if err := interp.Run(file, os.Stdin, os.Stderr, tw); err != nil {
        fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
        os.Exit(1)
    }
}

func promptIndex() (string, error) {
    ln := liner.NewLiner()
    defer ln.Close()
    ln.SetCtrlCAborts(true)
    s, err := ln.Prompt("test index : ")
    if err != nil {
        return "", err
    }
    return strings.TrimSpace(s), nil
}

func usage() {
    fmt.Fprintln(os.Stderr, "usage: cinterp [-trace] <prefix> [index]")
}
