package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/academics"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/conduct"
	"github.com/trezcool/darasa/core/event"
	"github.com/trezcool/darasa/core/exam"
	"github.com/trezcool/darasa/core/material"
	"github.com/trezcool/darasa/core/query"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user       *userTable
		class      *classTable
		subject    *subjectTable
		attendance *attendanceTable
		conduct    *conductTable
		exam       *examTable
		examResult *examResultTable
		material   *materialTable
		query      *queryTable
		event      *eventTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classTable struct {
		sync.RWMutex
		table map[string]*academics.Class
	}

	subjectTable struct {
		sync.RWMutex
		table map[string]*academics.Subject
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	conductTable struct {
		sync.RWMutex
		table map[string]*conduct.Entry
	}

	examTable struct {
		sync.RWMutex
		table map[string]*exam.Exam
	}

	examResultTable struct {
		sync.RWMutex
		table map[string]*exam.Result
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*material.Material
	}

	queryTable struct {
		sync.RWMutex
		table map[string]*query.Query
	}

	eventTable struct {
		sync.RWMutex
		table map[string]*event.Event
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		class:      &classTable{table: make(map[string]*academics.Class)},
		subject:    &subjectTable{table: make(map[string]*academics.Subject)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		conduct:    &conductTable{table: make(map[string]*conduct.Entry)},
		exam:       &examTable{table: make(map[string]*exam.Exam)},
		examResult: &examResultTable{table: make(map[string]*exam.Result)},
		material:   &materialTable{table: make(map[string]*material.Material)},
		query:      &queryTable{table: make(map[string]*query.Query)},
		event:      &eventTable{table: make(map[string]*event.Event)},
	}
	return db, nil
}
