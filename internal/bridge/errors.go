/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package bridge

import "fmt"

// Error taxonomy for persistence operations. Local edits are fully decoupled
// from these: only explicit save/load actions cross the network boundary, so
// none of them may corrupt the in-session history.

// DecodeError reports stored markup that is not a well-formed element array.
// Live-markup decodes recover with an empty list and a log line; named-save
// decodes surface it to the caller, since the user asked for that save.
type DecodeError struct {
	BlueprintID string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("markup for blueprint %s is not decodable: %v", e.BlueprintID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError reports client- or server-rejected input, such as an empty
// save name. The save is blocked with no partial write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NetworkError reports a failed persistence round-trip. It is surfaced as a
// non-blocking notification; the user may retry the save and keep editing.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: persistence call failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
