/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

// A named save against an unknown blueprint trips the FK on blueprint_id.
// The Postgres store must translate that into ErrNotFound so both Store
// implementations report a missing blueprint the same way.
func TestForeignKeyViolationMapsToNotFound(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", Message: "insert or update on table \"named_saves\" violates foreign key constraint"}
	if !isForeignKeyViolation(fk) {
		t.Fatalf("bare 23503 not recognized")
	}
	if !isForeignKeyViolation(fmt.Errorf("exec: %w", fk)) {
		t.Fatalf("wrapped 23503 not recognized")
	}
}

func TestOtherPGErrorsAreNotTreatedAsNotFound(t *testing.T) {
	cases := []error{
		nil,
		errors.New("connection refused"),
		&pgconn.PgError{Code: "23505"}, // unique violation keeps its own error
	}
	for _, err := range cases {
		if isForeignKeyViolation(err) {
			t.Fatalf("isForeignKeyViolation(%v) = true, want false", err)
		}
	}
}
