package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Синтаксис и диспетчеризация команд
	SynInfo              Code = 2000
	SynError             Code = 2001 // malformed batch or subcommand shape
	SynUnknownSubcommand Code = 2002
	SynMalformedItem     Code = 2003
	SynUnknownItem       Code = 2004
	SynReader            Code = 2005 // the item reader gave up on a list

	// Разрешение имён
	SemaInfo          Code = 3000
	SemaDuplicateDecl Code = 3001
	SemaUnboundName   Code = 3002
	SemaNotAValue     Code = 3003
	SemaNotCallable   Code = 3004
	SemaNotAType      Code = 3005

	// Вывод типов
	TypInfo         Code = 4000
	TypMismatch     Code = 4001
	TypArity        Code = 4002
	TypNotNumeric   Code = 4003
	TypInfiniteType Code = 4004
	TypNoSuchField  Code = 4005
	TypReturnArity  Code = 4006

	// Ввод-вывод драйвера
	IOLoadFileError Code = 5001
	IOCacheError    Code = 5002
)

var ( // todo расширить описания и использовать как notes
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		SynInfo:              "Syntax information",
		SynError:             "Syntax error",
		SynUnknownSubcommand: "Unknown subcommand",
		SynMalformedItem:     "Malformed item",
		SynUnknownItem:       "Unknown item kind",
		SynReader:            "Item reader failure",
		SemaInfo:             "Semantic information",
		SemaDuplicateDecl:    "Duplicate or invalid declaration",
		SemaUnboundName:      "Unbound name",
		SemaNotAValue:        "Name does not denote a value",
		SemaNotCallable:      "Name is not callable",
		SemaNotAType:         "Name does not denote a type",
		TypInfo:              "Type information",
		TypMismatch:          "Type mismatch",
		TypArity:             "Wrong number of arguments",
		TypNotNumeric:        "Expected an integral type",
		TypInfiniteType:      "Infinite type",
		TypNoSuchField:       "No such field",
		TypReturnArity:       "Wrong number of return values",
		IOLoadFileError:      "Failed to load file",
		IOCacheError:         "Disk cache error",
	}
)

// ID returns the stable short identifier of a code, e.g. TYP4001.
func (c Code) ID() string {
	ic := int(c)
	switch {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
