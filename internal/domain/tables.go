package domain

var Tables = []interface{}{
	&User{},
	&AccessToken{},
	&Product{},
	&Transaction{},
	&OprLog{},
}
