/*
 * MIT License
 *
 * Copyright (c) 2022-2024 Tochemey
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package graph

import "github.com/framegraph/engine/propmap"

// CreationRecord is one link of the creation-function frame (§3.4): a
// singly-linked list of (function name, argument-map snapshot) pairs
// captured at each invoke. A node remembers the head it saw at creation,
// so graph-inspection tooling can walk the chain back to the root
// invocation that produced it.
type CreationRecord struct {
	FunctionName string
	Args         *propmap.Map
	Next         *CreationRecord
}

// Push returns a new chain head with rec prepended to chain.
func Push(chain *CreationRecord, functionName string, args *propmap.Map) *CreationRecord {
	return &CreationRecord{FunctionName: functionName, Args: args, Next: chain}
}

// WalkChain visits each record of the chain starting at head, innermost
// (most recent invoke) first, passing its level (0 at head) to visit.
func WalkChain(head *CreationRecord, visit func(level int, rec *CreationRecord)) {
	level := 0
	for rec := head; rec != nil; rec = rec.Next {
		visit(level, rec)
		level++
	}
}
