package main

import (
	"github.com/Phig0r/sbt-verifiable-credentials/contract"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

func main() {
	cc, err := contractapi.NewChaincode(&contract.RegistrySmartContract{})
	if err != nil {
		panic("Error creating RegistrySmartContract: " + err.Error())
	}
	if err := cc.Start(); err != nil {
		panic("Error starting chaincode: " + err.Error())
	}
}
